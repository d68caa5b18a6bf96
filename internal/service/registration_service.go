package service

import (
	"context"
	"fmt"
	"strings"

	"carconnect/internal/audit"
	"carconnect/internal/credential"
	"carconnect/internal/domain"
	"carconnect/internal/metrics"
	"carconnect/internal/repository"
	"carconnect/internal/tenant"

	"go.uber.org/zap"
)

// TenantProvisioner creates a tenant schema on the caller's transaction
type TenantProvisioner interface {
	Provision(ctx context.Context, tx tenant.DBTX, schema string) (tenant.Handle, error)
}

var _ TenantProvisioner = (*tenant.Provisioner)(nil)

// RegistrationService creates owner and center accounts
type RegistrationService interface {
	RegisterOwner(ctx context.Context, req RegisterOwnerRequest) (*RegisterResponse, error)
	// RegisterCenter provisions the center's tenant schema in the same transaction
	// as the center row and its mapping
	RegisterCenter(ctx context.Context, req RegisterCenterRequest) (*RegisterResponse, error)
}

type registrationService struct {
	tx          repository.Transactor
	registry    TenantRegistrar
	provisioner TenantProvisioner
	owners      repository.OwnersRepository
	centers     repository.CentersRepository
	audit       audit.Sink
	logger      *zap.Logger
}

func NewRegistrationService(
	tx repository.Transactor,
	registry TenantRegistrar,
	provisioner TenantProvisioner,
	owners repository.OwnersRepository,
	centers repository.CentersRepository,
	auditSink audit.Sink,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		tx:          tx,
		registry:    registry,
		provisioner: provisioner,
		owners:      owners,
		centers:     centers,
		audit:       auditSink,
		logger:      logger,
	}
}

// RegisterOwnerRequest is the owner branch of POST /register
type RegisterOwnerRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=63"`
	Password string      `json:"password" validate:"required,min=8"`
	Name     string      `json:"name" validate:"required,max=120"`
	Gender   string      `json:"gender" validate:"omitempty,oneof=M F O"`
	Dob      domain.Date `json:"dob"`
	Street1  string      `json:"street_1"`
	Street2  string      `json:"street_2"`
	City     string      `json:"city"`
	Province string      `json:"province"`
	Phone    string      `json:"phone" validate:"omitempty,numeric,len=10"`
	Email    string      `json:"email" validate:"omitempty,email"`
	NIC      string      `json:"nic"`
	IP       string      `json:"-"`
}

// RegisterCenterRequest is the center branch of POST /register
type RegisterCenterRequest struct {
	Username   string            `json:"username" validate:"required,min=3,max=63"`
	Password   string            `json:"password" validate:"required,min=8"`
	Name       string            `json:"name" validate:"required,max=120"`
	CenterType domain.CenterType `json:"center_type" validate:"required,oneof=S R B"`
	Street1    string            `json:"street_1"`
	Street2    string            `json:"street_2"`
	City       string            `json:"city"`
	Province   string            `json:"province"`
	Phone      string            `json:"phone" validate:"omitempty,numeric,len=10"`
	Email      string            `json:"email" validate:"omitempty,email"`
	IP         string            `json:"-"`
}

type RegisterResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	RoleType string `json:"roleType"`
	Schema   string `json:"schema"`
}

func (s *registrationService) RegisterOwner(ctx context.Context, req RegisterOwnerRequest) (resp *RegisterResponse, err error) {
	defer func() { metrics.RegisterCounter.WithLabelValues(domain.RoleOwner, metrics.Outcome(err)).Inc() }()

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	salt, hash, err := credential.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	platform := s.registry.Platform()
	owner := &domain.Owner{
		Username: username,
		Name:     req.Name,
		Gender:   req.Gender,
		Dob:      req.Dob,
		Address:  domain.Address{Street1: req.Street1, Street2: req.Street2, City: req.City, Province: req.Province},
		Phone:    req.Phone,
		Email:    req.Email,
		NIC:      req.NIC,
		Roles:    domain.OwnerPrivileges,
	}

	var id int64
	err = s.tx.WithTx(ctx, func(tx tenant.DBTX) error {
		if err := s.registry.Register(ctx, tx, username, platform); err != nil {
			return err
		}
		id, err = s.owners.CreateOwner(ctx, tx, owner, salt, hash)
		return err
	})
	if err != nil {
		s.logger.Warn("Owner registration failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Owner registered", zap.Int64("owner_id", id), zap.String("username", username))
	s.emitRegistered(ctx, id, username, domain.RoleOwner, platform.Schema(), req.IP)
	return &RegisterResponse{ID: id, Username: username, RoleType: domain.RoleOwner, Schema: platform.Schema()}, nil
}

func (s *registrationService) RegisterCenter(ctx context.Context, req RegisterCenterRequest) (resp *RegisterResponse, err error) {
	defer func() { metrics.RegisterCounter.WithLabelValues(domain.RoleCenter, metrics.Outcome(err)).Inc() }()

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	schema, err := tenant.SchemaName(req.CenterType, req.Name)
	if err != nil {
		return nil, err
	}
	salt, hash, err := credential.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	platform := s.registry.Platform()
	center := &domain.Center{
		CenterType: req.CenterType,
		Username:   username,
		Name:       req.Name,
		Address:    domain.Address{Street1: req.Street1, Street2: req.Street2, City: req.City, Province: req.Province},
		Phone:      req.Phone,
		Email:      req.Email,
		Roles:      domain.CenterPrivileges,
	}

	var id int64
	observe := metrics.TrackProvision()
	err = s.tx.WithTx(ctx, func(tx tenant.DBTX) error {
		exists, err := s.registry.Exists(ctx, tx, username)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: username %q is already taken", domain.ErrConflict, username)
		}

		h, err := s.provisioner.Provision(ctx, tx, schema)
		if err != nil {
			return err
		}
		center.SchemaName = h.Schema()

		if id, err = s.centers.CreateCenter(ctx, tx, center, salt, hash); err != nil {
			return err
		}
		return s.registry.Register(ctx, tx, username, platform)
	})
	observe(err)
	if err != nil {
		s.logger.Warn("Center registration failed",
			zap.String("username", username),
			zap.String("schema", schema),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Center registered",
		zap.Int64("center_id", id),
		zap.String("username", username),
		zap.String("schema", schema),
	)
	s.emitRegistered(ctx, id, username, domain.RoleCenter, schema, req.IP)
	return &RegisterResponse{ID: id, Username: username, RoleType: domain.RoleCenter, Schema: schema}, nil
}

func (s *registrationService) emitRegistered(ctx context.Context, id int64, username, roleType, schema, ip string) {
	e := audit.NewEvent(audit.KindLoginRegister, "register")
	e.UserID, e.Username, e.UserType, e.Schema, e.IP = id, username, roleType, schema, ip
	emitAudit(ctx, s.audit, s.logger, e)
}
