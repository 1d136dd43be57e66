package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Logger           = glog.Nop()
	_ LoggerProvider   = glog.ProviderFromLogger(glog.Nop())
	_ Registry         = (*IntegrationRegistry)(nil)
	_ ActionDispatcher = (*Dispatcher)(nil)
	_ ConfigProvider   = (*CfgxConfigProvider)(nil)
	_ OptionsResolver  = GoOptionsResolver{}
	_ RawConfigLoader  = staticRawConfigLoader{}
	_ RawConfigLoader  = EnvRawConfigLoader{}
)
