package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"assetkit/internal/domain"
	"assetkit/internal/infra"
	"assetkit/internal/pipeline"
	"assetkit/internal/runner"
)

const (
	defaultReconnectInterval = 5 * time.Second
	defaultHeartbeatInterval = 60 * time.Second
)

var capabilities = []string{"generate_asset_kit", "regenerate_asset", "update_listing"}

// Options controls how the gateway agent is configured.
type Options struct {
	URL               string
	SessionID         string
	AgentName         string
	OutputDir         string
	ReconnectInterval time.Duration
	HeartbeatInterval time.Duration
	Logger            *infra.Logger
}

// Agent keeps a websocket session to the gateway, accepts task assignments
// and mirrors pipeline progress back to the sender. The underlying runner
// admits one run at a time; assignments that arrive mid-run get a queued
// status reply.
type Agent struct {
	url               string
	sessionID         string
	agentName         string
	outputDir         string
	reconnectInterval time.Duration
	heartbeatInterval time.Duration
	logger            zerolog.Logger

	runner  *runner.Runner
	started time.Time

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewAgent(opts Options, r *runner.Runner) *Agent {
	reconnect := opts.ReconnectInterval
	if reconnect <= 0 {
		reconnect = defaultReconnectInterval
	}
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Agent{
		url:               opts.URL,
		sessionID:         opts.SessionID,
		agentName:         opts.AgentName,
		outputDir:         opts.OutputDir,
		reconnectInterval: reconnect,
		heartbeatInterval: heartbeat,
		logger:            logger,
		runner:            r,
		started:           time.Now(),
	}
}

// Run connects to the gateway and serves until ctx is cancelled, redialing
// after every disconnect.
func (a *Agent) Run(ctx context.Context) error {
	for {
		if err := a.serve(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("gateway connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.reconnectInterval):
		}
	}
}

func (a *Agent) serve(ctx context.Context) error {
	a.logger.Info().Str("url", a.url).Msg("connecting to gateway")

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, a.url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.conn = nil
		a.mu.Unlock()
	}()

	a.logger.Info().Msg("connected to gateway")
	a.register()

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()
	go a.heartbeatLoop(serveCtx)
	go func() {
		<-serveCtx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read gateway message: %w", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			a.logger.Error().Err(err).Msg("failed to parse gateway message")
			continue
		}
		a.handleMessage(ctx, msg)
	}
}

func (a *Agent) handleMessage(ctx context.Context, msg Message) {
	a.logger.Info().Str("type", msg.Type).Str("from", msg.From).Msg("gateway message received")

	switch msg.Type {
	case TypeTaskAssignment:
		// Run in a goroutine so heartbeats keep flowing during generation.
		go a.handleTaskAssignment(ctx, msg)
	case TypeHeartbeat:
		a.send(TypeHeartbeat, msg.From, PriorityLow, heartbeatPayload{
			Status:    a.status(),
			AgentName: a.agentName,
		})
	default:
		a.logger.Warn().Str("type", msg.Type).Msg("unknown message type")
	}
}

func (a *Agent) handleTaskAssignment(ctx context.Context, msg Message) {
	if a.runner.Busy() {
		a.sendStatus(msg.From, "none", "queued", 0, "Agent busy, task queued")
		return
	}

	var request domain.AssetRequest
	if err := json.Unmarshal(msg.Payload, &request); err != nil {
		a.sendTaskFailed(msg, fmt.Errorf("invalid task payload: %w", err))
		return
	}

	sink := pipeline.SinkFunc(func(state domain.PipelineState) {
		a.sendStatus(msg.From, state.ID, string(state.Status), state.Progress,
			fmt.Sprintf("%s (%d/%d assets)", state.CurrentStep, state.AssetsCompleted, state.AssetsTotal))
	})

	manifest, err := a.runner.Submit(ctx, request, sink)
	if err != nil {
		if err == domain.ErrBusy {
			a.sendStatus(msg.From, "none", "queued", 0, "Agent busy, task queued")
			return
		}
		a.sendTaskFailed(msg, err)
		return
	}

	a.send(TypeTaskComplete, msg.From, PriorityMedium, completePayload{
		PipelineID: manifest.ProductSlug,
		Manifest:   manifest,
		OutputDir:  filepath.Join(a.outputDir, manifest.ProductSlug),
		Summary: fmt.Sprintf("Generated %d assets for %q in %.1fs. Cost: $%.3f",
			len(manifest.Assets), manifest.ProductName,
			manifest.GenerationTimeSeconds, manifest.TotalCostUSD),
	})
}

func (a *Agent) sendTaskFailed(msg Message, err error) {
	a.logger.Error().Err(err).Msg("task failed")
	a.send(TypeTaskFailed, msg.From, PriorityHigh, failedPayload{
		Error:       err.Error(),
		TaskPayload: msg.Payload,
		Recoverable: true,
	})
}

func (a *Agent) sendStatus(to, pipelineID, status string, progress int, message string) {
	a.send(TypeStatusUpdate, to, PriorityLow, statusPayload{
		PipelineID:  pipelineID,
		Status:      status,
		Progress:    progress,
		CurrentStep: message,
		Message:     message,
	})
}

func (a *Agent) register() {
	a.send(TypeHeartbeat, "gateway", PriorityLow, registrationPayload{
		AgentName:    a.agentName,
		SessionID:    a.sessionID,
		Capabilities: capabilities,
		Status:       a.status(),
	})
}

func (a *Agent) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(a.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.send(TypeHeartbeat, "gateway", PriorityLow, heartbeatPayload{
				Status:        a.status(),
				UptimeSeconds: time.Since(a.started).Seconds(),
			})
		}
	}
}

func (a *Agent) status() string {
	if a.runner.Busy() {
		return "busy"
	}
	return "idle"
}

// send marshals and writes one envelope. Writes are serialized because the
// heartbeat loop and task goroutines share the connection.
func (a *Agent) send(msgType, to, priority string, payload any) {
	msg, err := NewMessage(a.sessionID, to, msgType, priority, payload)
	if err != nil {
		a.logger.Error().Err(err).Msg("encode gateway message")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		a.logger.Warn().Str("type", msgType).Msg("cannot send, gateway not connected")
		return
	}
	if err := a.conn.WriteJSON(msg); err != nil {
		a.logger.Error().Err(err).Str("type", msgType).Msg("write gateway message")
	}
}
