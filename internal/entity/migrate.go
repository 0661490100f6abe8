package entity

import (
	"context"

	"github.com/peerquest-lab/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Quest{},
		&Attestation{},
		&ProcessedReward{},
		&FailedReward{},
	)
}
