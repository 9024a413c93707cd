//go:build !darwin

package vault

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("keychain backend not supported on this OS")

type KeychainVaultDAO struct{}

func newKeychainVaultDAO() (VaultDAO, error) { return nil, errUnsupported }

func (d *KeychainVaultDAO) GetSecretMetadata(ctx context.Context, name string) (SecretMetadata, error) {
	return SecretMetadata{Name: name, IsSet: false, Backend: "keychain"}, errUnsupported
}
func (d *KeychainVaultDAO) SetSecret(ctx context.Context, name string, value []byte) error {
	return errUnsupported
}
func (d *KeychainVaultDAO) UnsetSecret(ctx context.Context, name string) error {
	return errUnsupported
}
func (d *KeychainVaultDAO) GetSecretForInternalUse(ctx context.Context, name string) ([]byte, error) {
	return nil, errUnsupported
}
