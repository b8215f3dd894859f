package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           tutord API
// @version         1.0
// @description     HTTP API for local tutoring model orchestration, chat, and lesson progress.
//
// @contact.name   tutord maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
