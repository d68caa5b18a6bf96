package repository

import (
	"context"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"
)

// OwnersRepository reads and writes vehicle owner accounts in the platform schema
type OwnersRepository interface {
	CreateOwner(ctx context.Context, q tenant.DBTX, owner *domain.Owner, salt string, hash []byte) (int64, error)
	GetOwner(ctx context.Context, id int64) (*domain.Owner, error)
	GetOwnerCredentials(ctx context.Context, username string) (*domain.Credentials, error)
	GetOwnerCredentialsByID(ctx context.Context, id int64) (*domain.Credentials, error)
	OwnerExists(ctx context.Context, id int64) (bool, error)
	UpdateOwner(ctx context.Context, id int64, patch domain.OwnerPatch) (*domain.Owner, error)
	UpdateOwnerPassword(ctx context.Context, id int64, salt string, hash []byte) error
}

// CentersRepository reads and writes center (tenant root) accounts in the platform schema
type CentersRepository interface {
	CreateCenter(ctx context.Context, q tenant.DBTX, center *domain.Center, salt string, hash []byte) (int64, error)
	GetCenter(ctx context.Context, id int64) (*domain.Center, error)
	GetCenterCredentials(ctx context.Context, username string) (*domain.Credentials, error)
	GetCenterCredentialsByID(ctx context.Context, id int64) (*domain.Credentials, error)
	ListCenters(ctx context.Context) ([]domain.CenterSummary, error)
	UpdateCenter(ctx context.Context, id int64, patch domain.CenterPatch) (*domain.Center, error)
	UpdateCenterPassword(ctx context.Context, id int64, salt string, hash []byte) error
}
