// Command migrate copies the product catalog from MongoDB into DynamoDB.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/olaysco/ecomm-api/common/logger"
	"github.com/olaysco/ecomm-api/database"
	awspkg "github.com/olaysco/ecomm-api/pkg/aws"
	"github.com/olaysco/ecomm-api/repository"
	"go.uber.org/zap"
)

func main() {
	var mongoURI, dbName, table string
	var batchSize int
	flag.StringVar(&mongoURI, "mongo", os.Getenv("DB_URI"), "MongoDB URI")
	flag.StringVar(&dbName, "db", os.Getenv("DB_NAME"), "MongoDB database name")
	flag.StringVar(&table, "table", os.Getenv("DDB_TABLE_PRODUCTS"), "DynamoDB table name")
	flag.IntVar(&batchSize, "batch", 500, "products read per batch")
	flag.Parse()

	log, err := logger.Initialize(os.Getenv("APP_ENV"))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if mongoURI == "" || dbName == "" {
		log.Fatal("DB_URI and DB_NAME must be set or provided via flags")
	}
	if table == "" {
		table = "Products"
	}

	ctx := context.Background()
	client, db, err := database.ConnectMongo(ctx, mongoURI, dbName, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer database.CloseMongo(client)

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	src := repository.NewProductRepository(db)
	dst := repository.NewDynamoAdapter(database.NewDynamoClient(awsCfg), table)

	copied, err := copyProducts(ctx, src, dst, batchSize, log)
	if err != nil {
		log.Fatal("Migration failed", zap.Int("copied", copied), zap.Error(err))
	}
	log.Info("Migration complete", zap.Int("copied", copied), zap.String("table", table))
}
