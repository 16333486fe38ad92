package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate checks that all required fields are set and values are valid.
func (c *MergerConfig) Validate() error {
	if c.OrderArchive == "" {
		return errors.New("order_archive is required")
	}
	if c.TickArchive == "" {
		return errors.New("tick_archive is required")
	}

	if c.Output.Path == "" && c.Output.Dir == "" {
		return errors.New("output: set either path (combined file) or dir (per-channel)")
	}
	if c.Output.Path != "" && c.Output.Dir != "" {
		return errors.New("output: path and dir are mutually exclusive")
	}

	if c.MaxOpen < MinMaxOpen {
		return fmt.Errorf("max_open must be >= %d, got %d", MinMaxOpen, c.MaxOpen)
	}
	if c.MergeWorkers < 1 {
		return fmt.Errorf("merge_workers must be >= 1, got %d", c.MergeWorkers)
	}
	if c.GroupWorkers < 1 {
		return fmt.Errorf("group_workers must be >= 1, got %d", c.GroupWorkers)
	}
	if c.LimitFiles < 0 {
		return fmt.Errorf("limit_files must be >= 0, got %d", c.LimitFiles)
	}

	if c.SymbolRegex != "" {
		if _, err := regexp.Compile(c.SymbolRegex); err != nil {
			return fmt.Errorf("symbol_regex: %w", err)
		}
	}

	if c.Database != nil {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
