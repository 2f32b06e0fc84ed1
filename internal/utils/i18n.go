package utils

// Server-side messages for API error responses. Keys mirror the service
// error codes; detailed validation text stays in English.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":          "ok",
		"error.invalid":      "invalid request",
		"error.unauthorized": "sign in required",
		"error.forbidden":    "only the author can delete this",
		"error.not_found":    "not found",
		"error.conflict":     "already exists",
		"error.internal":     "internal error",
		"storage.degraded":   "changes are not being saved",
	},
	"zh": {
		"health.ok":          "好的",
		"error.invalid":      "请求无效",
		"error.unauthorized": "请先登录",
		"error.forbidden":    "只有作者可以删除",
		"error.not_found":    "未找到",
		"error.conflict":     "已存在",
		"error.internal":     "服务器内部错误",
		"storage.degraded":   "更改暂未保存",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
