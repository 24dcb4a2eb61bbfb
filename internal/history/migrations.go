package history

import (
	"database/sql"

	"github.com/dnenndn/monitoringAPP/internal/store"
)

// migrations defines the history schema. The covering index makes the
// window query (parameter_id, timestamp range) an index-only scan.
var migrations = []store.Migration{
	{
		Version:     1,
		Description: "create parameter_history table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS parameter_history (
					id           INTEGER  PRIMARY KEY AUTOINCREMENT,
					parameter_id INTEGER  NOT NULL,
					timestamp    DATETIME NOT NULL,
					value        REAL     NOT NULL
				)
			`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index history by parameter and time",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_history_param_time
				ON parameter_history (parameter_id, timestamp)
			`)
			return err
		},
	},
}
