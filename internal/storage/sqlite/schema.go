package sqlite

const schemaSQL = `
-- Raw postings as fetched from each source, one row per (source, posting_url).
-- content_hash pivots change detection: a re-observation with the same hash
-- only bumps last_seen.
CREATE TABLE IF NOT EXISTS raw_jobs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	posting_url TEXT NOT NULL,
	source_job_id TEXT,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	raw_text TEXT NOT NULL,
	city_hint TEXT,
	content_hash TEXT NOT NULL,
	metadata TEXT,
	first_seen INTEGER NOT NULL,
	last_seen INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_raw_jobs_identity ON raw_jobs(source, posting_url);
CREATE INDEX IF NOT EXISTS idx_raw_jobs_company ON raw_jobs(source, company);
CREATE INDEX IF NOT EXISTS idx_raw_jobs_last_seen ON raw_jobs(last_seen);

-- Enriched postings, one-to-one with raw_jobs. Classification facts are
-- promoted to columns; locations and skills stay JSON.
CREATE TABLE IF NOT EXISTS enriched_jobs (
	raw_job_id TEXT PRIMARY KEY REFERENCES raw_jobs(id),
	employer_name TEXT NOT NULL,
	title_display TEXT NOT NULL,
	job_family TEXT NOT NULL DEFAULT 'out_of_scope',
	job_subfamily TEXT,
	seniority TEXT,
	track TEXT,
	position_type TEXT NOT NULL DEFAULT 'full_time',
	working_arrangement TEXT NOT NULL DEFAULT 'onsite',
	locations TEXT,
	experience_range TEXT,
	employer_department TEXT,
	employer_size TEXT,
	is_agency INTEGER NOT NULL DEFAULT 0,
	agency_confidence TEXT,
	currency TEXT,
	salary_min REAL,
	salary_max REAL,
	equity_eligible INTEGER NOT NULL DEFAULT 0,
	skills TEXT,
	data_source TEXT NOT NULL,
	description_source TEXT,
	deduplicated INTEGER NOT NULL DEFAULT 0,
	alt_description TEXT,
	posted_date INTEGER NOT NULL,
	last_seen_date INTEGER NOT NULL,
	classified_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_enriched_posted_date ON enriched_jobs(posted_date DESC);
CREATE INDEX IF NOT EXISTS idx_enriched_family ON enriched_jobs(job_family, seniority);
CREATE INDEX IF NOT EXISTS idx_enriched_employer ON enriched_jobs(employer_name);

-- Read-only employer lookup consulted during enrichment
CREATE TABLE IF NOT EXISTS employer_metadata (
	name TEXT PRIMARY KEY,
	size TEXT,
	department TEXT
);
`
