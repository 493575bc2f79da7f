package database

// migrations is an ordered list of SQL migration groups. The version number
// is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: arrangement tree, labels, structure types
	{
		`CREATE TABLE arrangement_nodes (
			name TEXT PRIMARY KEY,
			parent TEXT REFERENCES arrangement_nodes(name),
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_arrangement_nodes_parent ON arrangement_nodes(parent)`,

		`CREATE TABLE arrangement_members (
			object TEXT PRIMARY KEY,
			node TEXT NOT NULL REFERENCES arrangement_nodes(name),
			attached_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_arrangement_members_node ON arrangement_members(node)`,

		`CREATE TABLE object_labels (
			object TEXT NOT NULL,
			label TEXT NOT NULL,
			PRIMARY KEY (object, label)
		)`,

		`CREATE TABLE structure_types (
			object TEXT PRIMARY KEY,
			generic TEXT NOT NULL DEFAULT '',
			code TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	},

	// Migration 2: host geometry stand-in and project tables
	{
		`CREATE TABLE surface_objects (
			name TEXT PRIMARY KEY,
			min_x REAL NOT NULL, min_y REAL NOT NULL, min_z REAL NOT NULL,
			max_x REAL NOT NULL, max_y REAL NOT NULL, max_z REAL NOT NULL,
			cog_x REAL NOT NULL, cog_y REAL NOT NULL, cog_z REAL NOT NULL,
			definition TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE reference_surfaces (
			id TEXT PRIMARY KEY,
			spec TEXT NOT NULL
		)`,

		`CREATE TABLE project_tables (
			table_name TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			column_name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (table_name, row_index, column_name)
		)`,
	},
}
