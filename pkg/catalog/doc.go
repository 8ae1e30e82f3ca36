// Package catalog stores user accounts and published apps.
//
// A Store is a small get/put collaborator with two implementations:
// MemoryStore for single-process deployments and tests, PGStore for
// PostgreSQL (schema shipped as embedded goose migrations in Migrations).
//
// Passwords are kept as bcrypt hashes (HashPassword, CheckPassword). At
// startup a YAML seed file declares initial users and the administrator
// list; Seed applies it idempotently:
//
//	users:
//	  - username: alice
//	    password: secret
//	    groups: [finance]
//	admins: [admin]
//
// A missing seed file yields a single admin/admin administrator.
package catalog
