package data

import (
	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"
	"github.com/DevRickLin/feishu-watchbot/internal/infra/webhook"
)

// Repositories contains all repositories
type Repositories struct {
	Settings repo.SettingsRepo
	Notifier repo.NotifierRepo
}

// NewRepositories creates all repositories
func NewRepositories(settingsDBPath string, webhookClient *webhook.Client) (*Repositories, error) {
	settingsRepo, err := NewSettingsRepo(settingsDBPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Settings: settingsRepo,
		Notifier: NewNotifierRepo(webhookClient),
	}, nil
}

// Close releases repository resources
func (r *Repositories) Close() error {
	return r.Settings.Close()
}
