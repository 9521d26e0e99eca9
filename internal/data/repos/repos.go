package repos

import (
	"github.com/yungbote/mysteryparty-backend/internal/data/repos/jobs"
	"github.com/yungbote/mysteryparty-backend/internal/data/repos/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type GenerationJobRepo = jobs.GenerationJobRepo
type PackageContentRepo = mystery.PackageContentRepo
type ConversationRepo = mystery.ConversationRepo

func NewGenerationJobRepo(db *gorm.DB, baseLog *logger.Logger) GenerationJobRepo {
	return jobs.NewGenerationJobRepo(db, baseLog)
}
func NewPackageContentRepo(db *gorm.DB, baseLog *logger.Logger) PackageContentRepo {
	return mystery.NewPackageContentRepo(db, baseLog)
}
func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return mystery.NewConversationRepo(db, baseLog)
}
