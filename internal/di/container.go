// Package di provides dependency injection facilities for the application
package di

import (
	"os"

	"mailauth/adapters/primary"
	"mailauth/adapters/secondary"
	"mailauth/internal/config"
	"mailauth/pkg/dns"
	emailauthpkg "mailauth/pkg/emailauth"
	"mailauth/pkg/logging"
	"mailauth/ports/input"
)

// Container represents a simple dependency injection container
type Container struct {
	logger           *logging.Logger
	emailAuthService input.EmailAuthPort
}

// NewContainer creates a new dependency injection container with all
// services wired up from cfg.
func NewContainer(appName string, cfg *config.Config) *Container {
	logger := logging.NewLogger(appName, logging.LevelInfo, os.Stdout)

	dnsClient := dns.NewClient(cfg.DNSResolvers)
	emailAuthRepository := secondary.NewEmailAuthRepository(dnsClient)
	emailAuthService := primary.NewEmailAuthAdapter(emailAuthRepository, emailauthpkg.InventoryOnlyVerifier{})

	return &Container{
		logger:           logger,
		emailAuthService: emailAuthService,
	}
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logging.Logger {
	return c.logger
}

// GetEmailAuthService returns the Email Authentication service
func (c *Container) GetEmailAuthService() input.EmailAuthPort {
	return c.emailAuthService
}
