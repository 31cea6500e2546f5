package sqlitestore

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS blobs (
	bucket TEXT NOT NULL,
	name TEXT NOT NULL,
	data BLOB NOT NULL,
	digest TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY(bucket, name)
);
`
