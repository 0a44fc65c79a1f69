package identity

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// BootstrapAdminUsername is the well-known bootstrap login.
	BootstrapAdminUsername = "admin@local"
	// BootstrapAdminPassword is the seed credential; rotate it after first login.
	BootstrapAdminPassword = "12345Az_"
)

// Provisioner ensures the fixed role set and the bootstrap administrator
// exist. Run is safe to invoke on every startup: after the first successful
// run it performs reads only. Any failure it returns is fatal to startup.
type Provisioner struct {
	repo          RepositoryManager
	logger        Logger
	roles         []RoleName
	adminUsername string
	adminPassword string
}

func NewProvisioner(repo RepositoryManager) *Provisioner {
	return &Provisioner{
		repo:          repo,
		logger:        defLogger{},
		roles:         DefaultRoles(),
		adminUsername: BootstrapAdminUsername,
		adminPassword: BootstrapAdminPassword,
	}
}

func (p *Provisioner) WithLogger(logger Logger) *Provisioner {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *Provisioner) WithRoles(roles ...RoleName) *Provisioner {
	if len(roles) > 0 {
		p.roles = roles
	}
	return p
}

func (p *Provisioner) WithBootstrapAdmin(username, password string) *Provisioner {
	if username != "" {
		p.adminUsername = username
	}
	if password != "" {
		p.adminPassword = password
	}
	return p
}

// Run provisions roles first, then the bootstrap administrator, inside one
// transaction with a bounded deadline.
func (p *Provisioner) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	return p.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := p.ensureRoles(ctx, tx); err != nil {
			return err
		}
		return p.ensureBootstrapAdmin(ctx, tx)
	})
}

// ensureRoles is check-then-create for each fixed role name. A unique
// violation here means another instance won the race; that duplicate-create
// failure is benign and resolved by re-reading.
func (p *Provisioner) ensureRoles(ctx context.Context, tx bun.Tx) error {
	for _, name := range p.roles {
		if _, err := p.repo.Roles().GetOrCreateByNameTx(ctx, tx, name); err != nil {
			return NewPersistenceError(err, "failed to provision role "+name)
		}
	}
	return nil
}

func (p *Provisioner) ensureBootstrapAdmin(ctx context.Context, tx bun.Tx) error {
	repoUsers := p.repo.Users()

	admin, err := repoUsers.GetByUsernameTx(ctx, tx, p.adminUsername)
	if err == nil {
		return p.ensureAdminRole(ctx, tx, admin)
	}
	if !repository.IsRecordNotFound(err) {
		return NewPersistenceError(err, "failed to look up bootstrap admin")
	}

	admin = &User{
		ID:       p.bootstrapAdminID(),
		Username: p.adminUsername,
		Email:    p.adminUsername,
	}

	admin, err = repoUsers.CreateWithPasswordTx(ctx, tx, admin, p.adminPassword)
	if err != nil {
		if IsValidationError(err) {
			// concurrent instance created the account between the read
			// and the insert
			p.logger.Info("bootstrap admin already created elsewhere, re-reading")
			if admin, err = repoUsers.GetByUsernameTx(ctx, tx, p.adminUsername); err == nil {
				return p.ensureAdminRole(ctx, tx, admin)
			}
		}
		return NewPersistenceError(err, "failed to create bootstrap admin")
	}

	for _, name := range p.roles {
		role, err := p.repo.Roles().GetByNameTx(ctx, tx, name)
		if err != nil {
			return NewPersistenceError(err, "failed to load role "+name)
		}
		if err := repoUsers.AddToRoleTx(ctx, tx, admin, role); err != nil {
			return NewPersistenceError(err, "failed to grant role "+name)
		}
	}

	p.logger.Info("bootstrap admin provisioned: %s", p.adminUsername)
	return nil
}

// ensureAdminRole grants Admin to an existing bootstrap account that is
// missing it; every other membership is left alone.
func (p *Provisioner) ensureAdminRole(ctx context.Context, tx bun.Tx, admin *User) error {
	memberships, err := p.repo.Users().GetRolesTx(ctx, tx, admin)
	if err != nil {
		return NewPersistenceError(err, "failed to load bootstrap admin roles")
	}

	for _, role := range memberships {
		if role.Name == RoleAdmin {
			return nil
		}
	}

	role, err := p.repo.Roles().GetByNameTx(ctx, tx, RoleAdmin)
	if err != nil {
		return NewPersistenceError(err, "failed to load Admin role")
	}

	if err := p.repo.Users().AddToRoleTx(ctx, tx, admin, role); err != nil {
		return NewPersistenceError(err, "failed to grant Admin role")
	}

	return nil
}

// bootstrapAdminID derives a stable id from the well-known login so repeated
// provisioning across environments agrees on the subject.
func (p *Provisioner) bootstrapAdminID() uuid.UUID {
	if id, err := hashid.NewUUID(p.adminUsername); err == nil {
		return id
	}
	return uuid.New()
}
