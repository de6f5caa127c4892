// @title           Directory API
// @version         1.0
// @description     Каталог анкет: регистрация с оплатой, модерация, публичный каталог.
// @host            localhost:4000
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	_ "directory_backend/docs"
	"directory_backend/internal/app"
)

func main() {
	app.Run()
}
