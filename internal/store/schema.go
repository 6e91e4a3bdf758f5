package store

// SchemaSQL bootstraps the graph schema. Every statement is idempotent so
// the bootstrap can run on every process start.
const SchemaSQL = `
    -- ==========================================================================
    -- PAGE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS page SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS url ON page TYPE string;
    DEFINE FIELD IF NOT EXISTS domain ON page TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON page TYPE string;
    DEFINE FIELD IF NOT EXISTS word_count ON page TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS sentence_count ON page TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS readability ON page TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS language ON page TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS content_hash ON page TYPE string;
    DEFINE FIELD IF NOT EXISTS version ON page TYPE int DEFAULT 1;
    DEFINE FIELD IF NOT EXISTS processed_at ON page TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS page_url ON page FIELDS url UNIQUE;
    DEFINE INDEX IF NOT EXISTS page_domain ON page FIELDS domain;

    -- ==========================================================================
    -- ENTITY TABLE
    -- ==========================================================================
    -- Record id is derived from the case-folded entity text.
    DEFINE TABLE IF NOT EXISTS entity SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS text ON entity TYPE string;
    DEFINE FIELD IF NOT EXISTS type ON entity TYPE string;
    DEFINE FIELD IF NOT EXISTS importance ON entity TYPE int DEFAULT 1;
    DEFINE FIELD IF NOT EXISTS description ON entity TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS aliases ON entity TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS confidence ON entity TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS mention_count ON entity TYPE int DEFAULT 0;

    DEFINE INDEX IF NOT EXISTS entity_text ON entity FIELDS text UNIQUE;
    DEFINE INDEX IF NOT EXISTS entity_type ON entity FIELDS type;
    DEFINE INDEX IF NOT EXISTS entity_importance ON entity FIELDS importance;

    -- ==========================================================================
    -- DOMAIN TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS domain SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON domain TYPE string;
    DEFINE FIELD IF NOT EXISTS page_count ON domain TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS entity_count ON domain TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS updated ON domain TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS domain_name ON domain FIELDS name UNIQUE;

    -- ==========================================================================
    -- MENTIONS RELATION (page -> entity containment edges)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS mentions TYPE RELATION IN page OUT entity SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS importance ON mentions TYPE int DEFAULT 1;
    DEFINE FIELD IF NOT EXISTS created ON mentions TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS unique_key ON mentions VALUE string::concat(<string>in, "|", <string>out);
    DEFINE INDEX IF NOT EXISTS unique_mention ON mentions FIELDS unique_key UNIQUE;

    -- ==========================================================================
    -- RELATED_TO RELATION (typed entity -> entity edges)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS related_to TYPE RELATION IN entity OUT entity SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS rel_type ON related_to TYPE string;
    DEFINE FIELD IF NOT EXISTS strength ON related_to TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS confidence ON related_to TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS description ON related_to TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS evidence ON related_to TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created ON related_to TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS unique_key ON related_to VALUE string::concat(<string>in, "|", <string>out, "|", rel_type);
    DEFINE INDEX IF NOT EXISTS unique_related ON related_to FIELDS unique_key UNIQUE;
`
