// Скрипт начальной настройки: применяет миграции, создаёт арендатора виджета
// и печатает его публичный ключ, секрет подписи и сниппет встраивания.
// С -admin-password дополнительно печатает ADMIN_PASSWORD_HASH для .env.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tech-monarch/schepen-kring-sub003/config"
	"github.com/tech-monarch/schepen-kring-sub003/database"
	"github.com/tech-monarch/schepen-kring-sub003/models"
)

func main() {
	name := flag.String("name", "Schepen Kring", "название компании")
	color := flag.String("color", "", "основной цвет виджета, например #0A84FF")
	adminPassword := flag.String("admin-password", "", "пароль администратора для ADMIN_PASSWORD_HASH")
	apiBase := flag.String("api-base", "http://localhost:8080", "адрес сервера для сниппета")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		logger.Info("Файл .env не найден, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка конфигурации", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL не задан: хранилище в памяти не переживёт перезапуск")
	}

	if err := database.RunMigrations(cfg.DatabaseURL, database.Migrations(), logger); err != nil {
		logger.Fatal("ошибка миграций", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("ошибка подключения к базе данных", zap.Error(err))
	}
	defer pool.Close()

	widgetCfg := models.DefaultConfig()
	if *color != "" {
		widgetCfg = models.SettingsPatch{PrimaryColor: color}.Apply(widgetCfg)
	}

	tenant, err := database.NewPGStore(pool).Create(ctx, *name, widgetCfg)
	if err != nil {
		logger.Fatal("ошибка создания арендатора", zap.Error(err))
	}
	logger.Info("создан арендатор", zap.String("company_id", tenant.ID.String()))

	fmt.Printf("company id:     %s\n", tenant.ID)
	fmt.Printf("public key:     %s\n", tenant.PublicKey)
	fmt.Printf("signing secret: %s\n\n", tenant.SigningSecret)
	fmt.Printf("<script src=\"%s/widget.js\" data-public-key=\"%s\" data-api-base=\"%s%s\" async></script>\n",
		*apiBase, tenant.PublicKey, *apiBase, config.APIPrefix)

	if *adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("ошибка хеширования пароля", zap.Error(err))
		}
		fmt.Fprintf(os.Stdout, "\nADMIN_PASSWORD_HASH=%s\n", hash)
	}
}
