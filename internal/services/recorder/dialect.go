package recorder

import "fmt"

type dialect struct {
	name          string
	driver        string
	schema        []string
	insertRequest string
	insertImage   string
}

var postgres = dialect{
	name:   "postgres",
	driver: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS request (
			id BIGSERIAL PRIMARY KEY,
			client_ip TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS image (
			id BIGSERIAL PRIMARY KEY,
			storage_path TEXT NOT NULL,
			bit_depth INTEGER NOT NULL,
			height INTEGER NOT NULL,
			width INTEGER NOT NULL,
			annotation JSONB NOT NULL,
			request_id BIGINT NOT NULL REFERENCES request (id),
			inference_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS image_request_id_idx ON image (request_id)`,
	},
	insertRequest: `INSERT INTO request (client_ip) VALUES ($1) RETURNING id`,
	insertImage: `INSERT INTO image (storage_path, bit_depth, height, width, annotation, request_id, inference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
}

var sqlite = dialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS request (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_ip TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS image (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			storage_path TEXT NOT NULL,
			bit_depth INTEGER NOT NULL,
			height INTEGER NOT NULL,
			width INTEGER NOT NULL,
			annotation TEXT NOT NULL,
			request_id INTEGER NOT NULL REFERENCES request (id),
			inference_id INTEGER,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS image_request_id_idx ON image (request_id)`,
	},
	insertRequest: `INSERT INTO request (client_ip) VALUES (?) RETURNING id`,
	insertImage: `INSERT INTO image (storage_path, bit_depth, height, width, annotation, request_id, inference_id)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres":
		return postgres, nil
	case "sqlite":
		return sqlite, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}
