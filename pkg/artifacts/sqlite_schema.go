package artifacts

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

// Schema creates the artifact catalog tables.
const Schema = `
CREATE TABLE IF NOT EXISTS artifacts (
    filename TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    size INTEGER NOT NULL,
    chat_id TEXT NOT NULL,
    image_index INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_chat_id ON artifacts(chat_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// InsertSchemaVersion records the applied schema version.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, strftime('%s','now'))`

// GetSchemaVersion reads the newest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`
