// Package main 启动应用程序
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yeisme/classmedia/pkg/cmd"
)

//	@title			ClassMedia API
//	@version		1.0
//	@description	班级媒体存储服务：按模块上传文件、套餐配额、视频预览与 HLS、带 Range 的播放以及观看记录。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme

func main() {
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
