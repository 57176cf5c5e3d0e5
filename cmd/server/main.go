package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/youruser/idcardapp/internal/api"
	"github.com/youruser/idcardapp/internal/batch"
	"github.com/youruser/idcardapp/internal/config"
)

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Fail(err)
	}
	// missing fixed template or template dir is fatal here too
	d, err := batch.NewDriver(cfg)
	if err != nil {
		config.Fail(err)
	}

	r := gin.Default()
	api.RegisterRoutes(r, &api.Handlers{Driver: d})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("starting server on http://localhost:" + port)
	if err := r.Run(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
