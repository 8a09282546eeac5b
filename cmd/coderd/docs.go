package main

// General API documentation for swaggo. Generate with
// `swag init -g cmd/coderd/docs.go` and build with -tags swagger.
//
// @title           coderd API
// @version         1.0
// @description     HTTP API for local HTML/UI code generation with a single llama.cpp model.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
