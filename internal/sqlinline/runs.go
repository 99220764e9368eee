package sqlinline

const QInsertRun = `--sql 8f2a4c1e-7d3b-4e9a-b5c6-1a2f3e4d5b6c
insert into runs(
  id,
  product_name,
  product_slug,
  profile,
  theme,
  status,
  started_at
) values (
  $1::text,
  $2::text,
  $3::text,
  $4::text,
  $5::text,
  $6::text,
  $7::timestamptz
);
`

const QFinishRun = `--sql 3b9d6e2f-5a1c-4f8b-9e7d-2c4a6b8d0e1f
update runs
set
  status = $2::text,
  assets_completed = $3::int,
  assets_total = $4::int,
  error_count = $5::int,
  total_cost_usd = $6::numeric,
  manifest = $7::jsonb,
  completed_at = $8::timestamptz
where id = $1::text;
`

const QRecentRuns = `--sql c7e1f9a3-2b6d-4c8e-a1f5-9d3b7e5c2a4f
select
  id,
  product_name,
  product_slug,
  profile,
  theme,
  status,
  assets_completed,
  assets_total,
  error_count,
  total_cost_usd,
  started_at,
  completed_at
from runs
order by started_at desc
limit $1::int;
`

const QCreateRunsTable = `--sql e4a8c2d6-1f3b-4a7e-8c5d-6b2e9f4a1c3d
create table if not exists runs (
  id text primary key,
  product_name text not null,
  product_slug text not null,
  profile text not null,
  theme text not null,
  status text not null,
  assets_completed int not null default 0,
  assets_total int not null default 0,
  error_count int not null default 0,
  total_cost_usd numeric not null default 0,
  manifest jsonb,
  started_at timestamptz not null,
  completed_at timestamptz
);
`
