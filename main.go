package main

import (
	"github.com/cppla/htmlsanitizer/config"
	"github.com/cppla/htmlsanitizer/models"
	"github.com/cppla/htmlsanitizer/routes"
	"github.com/cppla/htmlsanitizer/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(&models.Post{}, &models.Comment{})

	r, err := routes.SetupRouter(cfg, db, utils.GetRedis())
	if err != nil {
		utils.Sugar.Fatalf("setup router: %v", err)
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
