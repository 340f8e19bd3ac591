package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// LoadFields 提供 url/cache_key/命中来源字段，供加载链路日志复用；
// 来源未知时省略 source。
func LoadFields(action, url, key, source string) logrus.Fields {
	fields := logrus.Fields{
		"action":    action,
		"url":       url,
		"cache_key": key,
	}
	if source != "" {
		fields["source"] = source
	}
	return fields
}
