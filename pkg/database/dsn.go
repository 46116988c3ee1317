package database

import "strings"

type Driver string

const (
	DriverNone     Driver = ""
	DriverMongo    Driver = "mongodb"
	DriverPostgres Driver = "postgres"
)

// DetectDriver picks the backing from the connection string scheme. A
// key=value DSN ("host=... user=...") is treated as Postgres.
func DetectDriver(conn string) Driver {
	conn = strings.TrimSpace(conn)
	switch {
	case conn == "":
		return DriverNone
	case strings.HasPrefix(conn, "mongodb://"), strings.HasPrefix(conn, "mongodb+srv://"):
		return DriverMongo
	default:
		return DriverPostgres
	}
}
