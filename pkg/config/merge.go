package config

import (
	"fmt"
	"reflect"
)

// MergeConfig 合并配置
// - 如果 dst 和 src 都为 nil，返回错误
// - 如果 dst 为 nil，返回 src
// - 如果 src 为 nil，返回 dst
// - 否则 src 中的非零值覆盖 dst 的对应字段，返回合并后的 dst
//
// 各模块的构造函数用它把用户给的部分配置叠加在默认配置上，
// 用户只需要填写想要修改的字段。
func MergeConfig[T any](dst, src *T) (*T, error) {
	if dst == nil && src == nil {
		return nil, fmt.Errorf("config: both dst and src are nil")
	}
	if dst == nil {
		return src, nil
	}
	if src == nil {
		return dst, nil
	}

	if err := mergeValue(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()); err != nil {
		return nil, err
	}
	return dst, nil
}

// mergeValue 递归合并两个 reflect.Value，src 的零值不覆盖 dst
func mergeValue(dst, src reflect.Value) error {
	if !src.IsValid() || src.IsZero() {
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			if !src.Type().Field(i).IsExported() {
				continue
			}
			if err := mergeValue(dst.Field(i), src.Field(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Ptr:
		if src.IsNil() {
			return nil
		}
		if dst.IsNil() {
			if dst.CanSet() {
				dst.Set(reflect.New(dst.Type().Elem()))
			} else {
				return nil
			}
		}
		return mergeValue(dst.Elem(), src.Elem())
	case reflect.Map:
		if dst.IsNil() && dst.CanSet() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		for _, key := range src.MapKeys() {
			dst.SetMapIndex(key, src.MapIndex(key))
		}
		return nil
	default:
		// 基本类型、slice、interface 等直接覆盖
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}
