package seeders

import (
	"time"

	"github.com/zetahub/kryptonite/internal/config"
	"github.com/zetahub/kryptonite/internal/repository"
)

const defaultTimeout = 5 * time.Second

type Seeder struct {
	DB     repository.Database
	Config *config.Config
}

func New(DB repository.Database, cfg *config.Config) *Seeder {
	return &Seeder{
		DB:     DB,
		Config: cfg,
	}
}

func (seeder *Seeder) Run() {
	seeder.seedAdminAccount()
}
