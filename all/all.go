// Package all imports all supported registry implementations.
//
// Import this package for its side effects to register all ecosystems:
//
//	import (
//		"github.com/git-pkgs/depindex"
//		_ "github.com/git-pkgs/depindex/all"
//	)
//
//	// Now all ecosystems are available
//	ecosystems := registries.SupportedEcosystems()
//	// ["cargo", "composer", "conda", "cpan", "cran", "deno", "dub", "elm",
//	//  "gem", "golang", "hackage", "haxelib", "hex", "brew", "julia",
//	//  "luarocks", "maven", "nimble", "npm", "nuget", "clojars",
//	//  "cocoapods", "pub", "pypi", "terraform"]
package all

import (
	_ "github.com/git-pkgs/depindex/internal/cargo"
	_ "github.com/git-pkgs/depindex/internal/clojars"
	_ "github.com/git-pkgs/depindex/internal/cocoapods"
	_ "github.com/git-pkgs/depindex/internal/conda"
	_ "github.com/git-pkgs/depindex/internal/cpan"
	_ "github.com/git-pkgs/depindex/internal/cran"
	_ "github.com/git-pkgs/depindex/internal/deno"
	_ "github.com/git-pkgs/depindex/internal/dub"
	_ "github.com/git-pkgs/depindex/internal/elm"
	_ "github.com/git-pkgs/depindex/internal/golang"
	_ "github.com/git-pkgs/depindex/internal/hackage"
	_ "github.com/git-pkgs/depindex/internal/haxelib"
	_ "github.com/git-pkgs/depindex/internal/hex"
	_ "github.com/git-pkgs/depindex/internal/homebrew"
	_ "github.com/git-pkgs/depindex/internal/julia"
	_ "github.com/git-pkgs/depindex/internal/luarocks"
	_ "github.com/git-pkgs/depindex/internal/maven"
	_ "github.com/git-pkgs/depindex/internal/nimble"
	_ "github.com/git-pkgs/depindex/internal/npm"
	_ "github.com/git-pkgs/depindex/internal/nuget"
	_ "github.com/git-pkgs/depindex/internal/packagist"
	_ "github.com/git-pkgs/depindex/internal/pub"
	_ "github.com/git-pkgs/depindex/internal/pypi"
	_ "github.com/git-pkgs/depindex/internal/rubygems"
	_ "github.com/git-pkgs/depindex/internal/terraform"
)
