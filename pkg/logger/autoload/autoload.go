package autoload

import (
	configx "github.com/merrysway/brewflow/pkg/config"
	logx "github.com/merrysway/brewflow/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
