// Package main is the entry point for the Newsloom Analysis Core.
//
//	@title						Newsloom Analysis API
//	@version					1.0
//	@description				新闻聚类分析服务 - 基于 Milvus 向量检索与 HDBSCAN 密度聚类
//	@termsOfService				https://github.com/kart-io/newsloom
//
//	@contact.name				Newsloom Team
//	@contact.url				https://github.com/kart-io/newsloom
//	@contact.email				support@newsloom.io
//
//	@license.name				Apache 2.0
//	@license.url				http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host						localhost:8083
//	@BasePath					/
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	analysis "github.com/kart-io/newsloom/internal/analysis"
)

func main() {
	analysis.NewApp().Run()
}
