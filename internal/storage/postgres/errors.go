package postgres

import "github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"

var ErrNotFound = model.ErrNotFound
