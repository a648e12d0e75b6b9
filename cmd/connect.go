package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/dialect"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
)

// session holds one pinned connection per side. The destination session
// settings and the copy transactions must share a connection, and MySQL
// streams a single result set per connection.
type session struct {
	dbs   []*sql.DB
	conns []*sql.Conn

	src *schema.Source
	dst *schema.Destination
}

func openConn(ctx context.Context, s *session, cfg *DBConfig) (*sql.Conn, error) {
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return nil, err
	}
	driver := cfg.Driver
	if driver == "mssql" {
		driver = "sqlserver"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Name, err)
	}
	s.dbs = append(s.dbs, db)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Name, err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve connection to %s: %w", cfg.Name, err)
	}
	s.conns = append(s.conns, conn)
	logger.Info("connected", "database", cfg.Name, "role", cfg.Role, "driver", cfg.Driver)
	return conn, nil
}

// connect opens the destination, prepares its session and loads its
// catalog. The source is opened only when withSource is set.
func connect(ctx context.Context, withSource bool) (*session, error) {
	s := &session{}
	if err := s.open(ctx, withSource); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) open(ctx context.Context, withSource bool) error {
	if withSource {
		cfg, err := GetDBConfig(RoleSource)
		if err != nil {
			return err
		}
		conn, err := openConn(ctx, s, cfg)
		if err != nil {
			return err
		}
		s.src = schema.NewSource(conn, dialect.GetDialect(cfg.Driver))
	}

	cfg, err := GetDBConfig(RoleDestination)
	if err != nil {
		return err
	}
	conn, err := openConn(ctx, s, cfg)
	if err != nil {
		return err
	}
	s.dst = schema.NewDestination(conn, &dialect.OracleDialect{})
	if err := s.dst.Prepare(ctx); err != nil {
		return fmt.Errorf("failed to prepare destination session: %w", err)
	}

	logger.Info("loading destination catalog")
	if err := s.dst.Load(ctx); err != nil {
		return err
	}
	logger.Info("destination catalog loaded", "tables", len(s.dst.Tables()))
	return nil
}

func (s *session) Close() error {
	var errs []error
	for _, c := range s.conns {
		errs = append(errs, c.Close())
	}
	for _, db := range s.dbs {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}
