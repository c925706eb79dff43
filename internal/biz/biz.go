package biz

import (
	"github.com/DevRickLin/feishu-watchbot/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Watch    *usecase.WatchUsecase
	Settings *usecase.SettingsUsecase
}
