package api

import (
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

// Services groups the business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Blog       *service.BlogService
	Post       *service.PostService
	Category   *service.CategoryService
	Indexer    *service.IndexerService
	Dispatcher *service.Dispatcher
}

// Storage groups file storage handlers used by the API server.
type Storage struct {
	Images         *images.Storage
	ImageProcessor *images.Processor
}
