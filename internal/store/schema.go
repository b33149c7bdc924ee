package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
    position             INTEGER PRIMARY KEY,
    location             TEXT NOT NULL,
    unit                 TEXT NOT NULL DEFAULT '',
    name                 TEXT NOT NULL,
    price                TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_meta (
    key                  TEXT PRIMARY KEY,
    value                TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_filter ON items(location, unit);
`
