package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/trackly/internal/cli"
	"github.com/julianstephens/trackly/internal/keyring"
	"github.com/julianstephens/trackly/internal/storage/postgres"
)

// SetConnectionCmd stores a PostgreSQL connection string in the OS keyring
type SetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in the keyring."`
}

func (cmd *SetConnectionCmd) Run(ctx *cli.Context) error {
	if !postgres.IsConnString(cmd.ConnectionString) && !postgres.LooksLikeDSN(cmd.ConnectionString) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// the keyring is encrypted, so a password may live there
		ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
		ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	ctx.Println("✓ Connection string stored in OS keyring")
	ctx.Println("  trackly will use it whenever --config is not given")
	return nil
}

// ClearConnectionCmd removes the stored connection string
type ClearConnectionCmd struct{}

func (cmd *ClearConnectionCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// ShowConnectionCmd prints which store is in use, with passwords masked
type ShowConnectionCmd struct{}

func (cmd *ShowConnectionCmd) Run(ctx *cli.Context) error {
	ctx.Printf("Backend: %s\n", ctx.Target.Backend)
	ctx.Printf("Source:  %s\n", ctx.Target.Source)
	ctx.Printf("Store:   %s\n", maskPassword(ctx.Target.Location))

	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		ctx.Printf("Keyring: %s\n", maskPassword(connStr))
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Println("Keyring: no connection string stored")
	default:
		ctx.Printf("Keyring: unavailable (%v)\n", err)
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if postgres.IsConnString(connStr) {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			// the last @ separates user info from host
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
		return connStr
	}

	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(strings.ToLower(part), "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
