package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureBackend uploads recordings to an Azure Blob Storage container.
type AzureBackend struct {
	container string
	client    *azblob.Client
}

type AzureOptions struct {
	Account   string
	Container string
	// Credential is an azcore.TokenCredential obtained by the caller
	// (e.g. via azidentity.NewDefaultAzureCredential), kept out of this
	// package so it has no direct azidentity dependency.
	Credential azcore.TokenCredential
}

func NewAzureBackend(opts AzureOptions) (*AzureBackend, error) {
	if opts.Account == "" || opts.Container == "" {
		return nil, fmt.Errorf("archive: azure account and container are required")
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", opts.Account)
	client, err := azblob.NewClient(serviceURL, opts.Credential, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: create azure client: %w", err)
	}
	return &AzureBackend{container: opts.Container, client: client}, nil
}

func (b *AzureBackend) Upload(ctx context.Context, localPath, remoteKey string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	if _, err := b.client.UploadFile(ctx, b.container, remoteKey, f, nil); err != nil {
		return fmt.Errorf("azure upload: %w", err)
	}
	return nil
}
