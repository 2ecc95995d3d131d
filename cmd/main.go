package main

import "github.com/adanyl0v/go-task-api/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectMongo()
	defer app.DisconnectMongo()

	app.MustConnectRedis()
	defer app.CloseRedis()

	app.MustInitStorage()

	app.MustListenAndServeHTTP()
}
