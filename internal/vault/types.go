package vault

import (
	"context"
	"fmt"
	"time"
)

// VaultDAO stores the secrets amqkill needs to reach a broker's
// management agent. Implementations must never log or print secret values.
type VaultDAO interface {
	// GetSecretMetadata returns metadata for a specific secret name. If the secret is not set,
	// implementations should return metadata with IsSet=false and no error.
	GetSecretMetadata(ctx context.Context, name string) (SecretMetadata, error)
	SetSecret(ctx context.Context, name string, value []byte) error
	UnsetSecret(ctx context.Context, name string) error
	// GetSecretForInternalUse fetches the raw secret value for internal usage only.
	// CLI code must never print or log this value.
	GetSecretForInternalUse(ctx context.Context, name string) ([]byte, error)
}

// SecretMetadata contains non-sensitive information about a secret.
type SecretMetadata struct {
	Name      string
	IsSet     bool
	Backend   string
	UpdatedAt *time.Time
}

const (
	// ServiceName groups all amqkill secrets in the Keychain.
	ServiceName = "amqkill"
)

// NewVaultDAO constructs a DAO for the selected backend. For now only "keychain" is supported.
func NewVaultDAO(backend string) (VaultDAO, error) {
	switch backend {
	case "", "keychain":
		return newKeychainVaultDAO()
	default:
		return nil, fmt.Errorf("vault backend not implemented: %s", backend)
	}
}

// GetSecret resolves a secret through the given backend.
func GetSecret(ctx context.Context, backend, name string) ([]byte, error) {
	dao, err := NewVaultDAO(backend)
	if err != nil {
		return nil, err
	}
	return dao.GetSecretForInternalUse(ctx, name)
}
