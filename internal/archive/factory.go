package archive

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/breeze-rmm/screenbridge/internal/config"
)

// NewBackend builds the Backend named by cfg.Provider. Azure credential
// resolution is left to the caller through azureCredential, so this
// package stays free of the azidentity import; with a nil azureCredential
// the "azure" provider returns an error.
func NewBackend(ctx context.Context, cfg config.ArchiveConfig, azureCredential azureCredentialFunc) (Backend, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalBackend(cfg.LocalPath), nil
	case "s3":
		return NewS3Backend(ctx, S3Options{Bucket: cfg.S3Bucket, Region: cfg.S3Region})
	case "azure":
		if azureCredential == nil {
			return nil, fmt.Errorf("archive: azure backend requires a credential provider")
		}
		cred, err := azureCredential()
		if err != nil {
			return nil, fmt.Errorf("archive: resolve azure credential: %w", err)
		}
		return NewAzureBackend(AzureOptions{Account: cfg.AzureAccount, Container: cfg.AzureContainer, Credential: cred})
	case "gcs":
		return NewGCSBackend(ctx, cfg.GCSBucket)
	default:
		return nil, fmt.Errorf("archive: unknown provider %q", cfg.Provider)
	}
}

type azureCredentialFunc = func() (azcore.TokenCredential, error)
