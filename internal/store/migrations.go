package store

const schema = `
CREATE TABLE IF NOT EXISTS imports (
    id          TEXT PRIMARY KEY,
    source      TEXT NOT NULL DEFAULT '',
    brand_count INTEGER NOT NULL DEFAULT 0,
    imported_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);

CREATE TABLE IF NOT EXISTS brands (
    name               TEXT PRIMARY KEY,
    import_id          TEXT NOT NULL DEFAULT '',
    position           INTEGER NOT NULL DEFAULT 0,
    top_category       TEXT NOT NULL DEFAULT '',
    sub_category       TEXT NOT NULL DEFAULT '',
    logo               TEXT NOT NULL DEFAULT '',
    place_count        INTEGER NOT NULL DEFAULT 0,
    visits_yoy         TEXT NOT NULL DEFAULT '[]',
    spend_yoy          TEXT NOT NULL DEFAULT '[]',
    txns_yoy           TEXT NOT NULL DEFAULT '[]',
    visits_index       TEXT NOT NULL DEFAULT '[]',
    spend_index        TEXT NOT NULL DEFAULT '[]',
    txns_index         TEXT NOT NULL DEFAULT '[]',
    updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_brands_category ON brands(top_category);

CREATE TABLE IF NOT EXISTS rank_snapshots (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    import_id      TEXT NOT NULL REFERENCES imports(id),
    brand_name     TEXT NOT NULL,
    current_rank   INTEGER,
    previous_rank  INTEGER,
    rank_change    INTEGER,
    current_total  INTEGER,
    current_growth INTEGER,
    current_heat   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_snapshots_brand ON rank_snapshots(brand_name);
CREATE INDEX IF NOT EXISTS idx_snapshots_import ON rank_snapshots(import_id);
`
