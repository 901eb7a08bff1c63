package migrations

// MigrationSet provides a set of migrations that can be applied to a database.
type MigrationSet []MigrationData

// MigrationData provides the data for a single migration, including Up and Down SQL.
type MigrationData struct {
	SequenceNumber int64
	Name           string
	UpSQL          string
	DownSQL        string
}

// ServerMigrations is the set of migrations to set up the dispatcher database.
var ServerMigrations = MigrationSet{
	{
		SequenceNumber: 1,
		Name:           "create_jobs",
		UpSQL: `CREATE TABLE IF NOT EXISTS jobs
				(
					id text NOT NULL PRIMARY KEY,
					project_name text NOT NULL,
					branch text NOT NULL,
					status text NOT NULL,
					commit_sha text,
					commit_message text,
					commit_author_name text,
					started_at text NOT NULL,
					completed_at text,
					output text,
					output_truncated integer NOT NULL DEFAULT 0,
					error text,
					created_at text NOT NULL,
					duration_ms integer
				);
				CREATE INDEX IF NOT EXISTS jobs_project_name_index ON jobs(project_name);
				CREATE INDEX IF NOT EXISTS jobs_branch_index ON jobs(branch);
				CREATE INDEX IF NOT EXISTS jobs_status_index ON jobs(status);
				CREATE INDEX IF NOT EXISTS jobs_created_at_desc_index ON jobs(created_at DESC);`,
		DownSQL: `DROP INDEX IF EXISTS jobs_created_at_desc_index;
				  DROP INDEX IF EXISTS jobs_status_index;
				  DROP INDEX IF EXISTS jobs_branch_index;
				  DROP INDEX IF EXISTS jobs_project_name_index;
				  DROP TABLE jobs;`,
	},
	{
		SequenceNumber: 2,
		Name:           "create_job_logs",
		UpSQL: `CREATE TABLE IF NOT EXISTS job_logs
				(
					id integer PRIMARY KEY AUTOINCREMENT,
					job_id text NOT NULL REFERENCES jobs (id) ON UPDATE NO ACTION ON DELETE CASCADE,
					sequence integer NOT NULL,
					log_type text NOT NULL,
					command text,
					started_at text NOT NULL,
					completed_at text,
					duration_ms integer,
					exit_code integer,
					output text,
					status text NOT NULL
				);
				CREATE UNIQUE INDEX IF NOT EXISTS job_logs_job_id_sequence_unique_index ON job_logs(job_id, sequence);`,
		DownSQL: `DROP INDEX IF EXISTS job_logs_job_id_sequence_unique_index;
				  DROP TABLE job_logs;`,
	},
}
