// Package testinfra starts the containers used by build-tagged integration tests.
package testinfra

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/gcloud"
	"google.golang.org/api/option"
	"google.golang.org/api/option/internaloption"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	BigQueryImage   = "ghcr.io/goccy/bigquery-emulator:0.6.1"
	BigQueryProject = "bqrun-test"
)

// BigQueryContainer is a running BigQuery emulator.
type BigQueryContainer struct {
	*gcloud.GCloudContainer
	ProjectID string
}

// StartBigQuery runs the emulator with BigQueryProject as its only project.
// The caller must Terminate it.
func StartBigQuery(ctx context.Context, opts ...testcontainers.ContainerCustomizer) (*BigQueryContainer, error) {
	customizers := append([]testcontainers.ContainerCustomizer{gcloud.WithProjectID(BigQueryProject)}, opts...)

	ctr, err := gcloud.RunBigQuery(ctx, BigQueryImage, customizers...)
	if err != nil {
		if ctr != nil {
			ctr.Terminate(ctx) //nolint:errcheck
		}
		return nil, fmt.Errorf("start bigquery emulator: %w", err)
	}

	return &BigQueryContainer{GCloudContainer: ctr, ProjectID: ctr.Settings.ProjectID}, nil
}

// ClientOptions points a BigQuery client at the emulator without credentials.
func (c *BigQueryContainer) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(c.URI),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		option.WithoutAuthentication(),
		internaloption.SkipDialSettingsValidation(),
	}
}
