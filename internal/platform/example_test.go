package platform_test

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/npmship/internal/platform"
)

func ExampleResolve() {
	target, err := platform.Resolve(platform.PlatformMac, platform.ArchARM64)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(target.BinaryName("mcp-getweb"))
	// Output: mcp-getweb-aarch64-apple-darwin
}

func ExampleResolve_unsupported() {
	_, err := platform.Resolve("freebsd", platform.ArchX64)
	fmt.Println(err)
	// Output: unsupported platform: freebsd (x64)
}
