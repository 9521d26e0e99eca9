package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

type Repos struct {
	GenerationJob  repos.GenerationJobRepo
	PackageContent repos.PackageContentRepo
	Conversation   repos.ConversationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		GenerationJob:  repos.NewGenerationJobRepo(db, log),
		PackageContent: repos.NewPackageContentRepo(db, log),
		Conversation:   repos.NewConversationRepo(db, log),
	}
}
