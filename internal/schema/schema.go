// Package schema centralizes every SQL statement used by the telco billings
// warehouse: table and function DDL, the secondary index set, analytics view
// definitions, data-quality queries, and the retention delete. Keeping the SQL
// in one place makes it reviewable without chasing it through the pipeline.
package schema

// Table is the permanent fact table holding one row per usage/billing event.
// event_uuid is the deterministic content hash computed by GenerateEventUUID
// and acts as the primary key for deduplication.
const Table = "telco_billings_usage"

// Columns lists the staging/permanent columns in CSV order, excluding the
// event_uuid identity column which is computed at merge time.
var Columns = []string{
	"customer_id",
	"event_start_time",
	"event_type",
	"rate_plan_id",
	"billing_flag_one",
	"billing_flag_two",
	"duration",
	"charge",
	"month",
}

const CreateTable = `
CREATE TABLE IF NOT EXISTS telco_billings_usage (
    customer_id INTEGER,
    event_start_time TIMESTAMP WITH TIME ZONE,
    event_type VARCHAR(50),
    rate_plan_id INTEGER,
    billing_flag_one INTEGER,
    billing_flag_two INTEGER,
    duration FLOAT8,
    charge NUMERIC(18, 8),
    month VARCHAR(7),
    event_uuid VARCHAR(32) PRIMARY KEY
);`

// GenerateEventUUID installs the identity function used inside the merge
// statement. It must stay in sync with identity.EventKey: same field order,
// same "_" delimiter, empty string for NULLs, MD5 rendered as 32 hex chars.
// Deliberately not STRICT: a NULL argument must hash as an empty component,
// not collapse the whole result to NULL and break the event_uuid PK.
const GenerateEventUUID = `
CREATE OR REPLACE FUNCTION generate_event_uuid(
    p_customer_id INTEGER,
    p_event_time TIMESTAMP WITH TIME ZONE,
    p_event_type TEXT,
    p_rate_plan_id INTEGER,
    p_charge NUMERIC
)
RETURNS VARCHAR(32) AS $$
BEGIN
    RETURN MD5(
        COALESCE(p_customer_id::TEXT, '') || '_' ||
        COALESCE(p_event_time::TEXT, '') || '_' ||
        COALESCE(p_event_type, '') || '_' ||
        COALESCE(p_rate_plan_id::TEXT, '') || '_' ||
        COALESCE(p_charge::TEXT, '')
    );
END;
$$ LANGUAGE plpgsql IMMUTABLE;`

// Index pairs a secondary index name with its create statement. The loader
// drops and recreates these as a set around the bulk merge.
type Index struct {
	Name              string
	CreateIfNotExists string
	Create            string
}

// SecondaryIndexes is the fixed set of non-PK indexes on the fact table,
// in creation order.
var SecondaryIndexes = []Index{
	{
		Name:              "idx_billing_customer_id",
		CreateIfNotExists: "CREATE INDEX IF NOT EXISTS idx_billing_customer_id ON telco_billings_usage(customer_id);",
		Create:            "CREATE INDEX idx_billing_customer_id ON telco_billings_usage(customer_id);",
	},
	{
		Name:              "idx_billing_event_time",
		CreateIfNotExists: "CREATE INDEX IF NOT EXISTS idx_billing_event_time ON telco_billings_usage(event_start_time);",
		Create:            "CREATE INDEX idx_billing_event_time ON telco_billings_usage(event_start_time);",
	},
	{
		Name:              "idx_billing_event_type",
		CreateIfNotExists: "CREATE INDEX IF NOT EXISTS idx_billing_event_type ON telco_billings_usage(event_type);",
		Create:            "CREATE INDEX idx_billing_event_type ON telco_billings_usage(event_type);",
	},
	{
		Name:              "idx_billing_month",
		CreateIfNotExists: "CREATE INDEX IF NOT EXISTS idx_billing_month ON telco_billings_usage(month);",
		Create:            "CREATE INDEX idx_billing_month ON telco_billings_usage(month);",
	},
}

// IndexExists probes pg_class for an index by name in the public schema.
// Parameter: $1 = lowercase index name. Returns one row when present.
const IndexExists = `
SELECT 1
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relname = $1 AND n.nspname = 'public';`

// CheckMissingValues counts NULLs in the critical columns over the trailing
// 24 hours. A single row is always returned; sums are coalesced so the
// checker scans plain integers.
const CheckMissingValues = `
SELECT
    COALESCE(SUM(CASE WHEN customer_id IS NULL THEN 1 ELSE 0 END), 0) AS missing_customer_id,
    COALESCE(SUM(CASE WHEN event_start_time IS NULL THEN 1 ELSE 0 END), 0) AS missing_time,
    COALESCE(SUM(CASE WHEN event_type IS NULL THEN 1 ELSE 0 END), 0) AS missing_event_type,
    COUNT(*) AS total_rows_checked
FROM telco_billings_usage
WHERE (event_start_time >= (CURRENT_TIMESTAMP - INTERVAL '1 day')) AND (event_start_time < CURRENT_TIMESTAMP);`

// CheckFutureDates counts rows dated past the query clock, unbounded.
const CheckFutureDates = `
SELECT COUNT(*) AS future_date_count
FROM telco_billings_usage
WHERE event_start_time > CURRENT_TIMESTAMP;`

const CreateUsageDistributionView = `
CREATE OR REPLACE VIEW analytics_usage_distribution AS
SELECT
    event_type AS service_type,
    rate_plan_id,
    COUNT(*) AS event_count,
    SUM(duration) AS total_duration,
    SUM(charge) AS total_charge,
    COUNT(DISTINCT customer_id) AS customer_count
FROM telco_billings_usage
GROUP BY event_type, rate_plan_id
ORDER BY event_type, rate_plan_id;`

const CreateMonthlyTrendsView = `
CREATE OR REPLACE VIEW analytics_monthly_trends AS
SELECT
    month,
    event_type AS service_type,
    COUNT(*) AS event_count,
    COUNT(DISTINCT customer_id) AS customer_count,
    SUM(duration) AS total_duration,
    SUM(charge) AS total_charge
FROM telco_billings_usage
GROUP BY month, event_type
ORDER BY month, event_type;`

// DeleteExpired removes rows strictly older than the retention horizon.
// Parameter: $1 = retention period in months. Boundary-equal rows survive.
const DeleteExpired = `
DELETE FROM telco_billings_usage
WHERE event_start_time < (CURRENT_TIMESTAMP - make_interval(months => $1));`
