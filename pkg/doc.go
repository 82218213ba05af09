// Package pkg holds the qrfetch libraries.
//
// # Overview
//
// qrfetch turns a text payload into a QR code image. The pipeline prefers
// in-process encoding and falls back to two remote services, caching every
// image it downloads:
//
//	text, width, height
//	       ↓
//	[acquire]   local → api → scrape, first success wins
//	       ↓                ↓
//	[encoder]         [remote] builds URLs, scrapes pages
//	                        ↓
//	                  [imagefetch] cache lookup, download, decode
//	                        ↓            ↓
//	                  [cache]        [fetch] async HTTP GET
//	       ↓
//	[pixel] Buffer (RGBA, exactly one per request)
//
// # Packages
//
//   - [acquire]: the tier state machine and its completion API
//   - [encoder]: local QR encoding
//   - [remote]: QR API and QR page scrape tiers
//   - [imagefetch]: cached image retrieval by URL
//   - [fetch]: asynchronous HTTP text and binary GETs
//   - [cache]: disk, Redis and S3 image caches keyed by URL hash
//   - [pixel]: the image buffer type and codecs
//   - [resample]: bilinear scaling
//   - [async]: single-completion results
//   - [errors]: coded errors shared by every tier
//   - [observability], [metrics]: hooks and latency tracking
//   - [config]: TOML and environment configuration
//
// # Quick Start
//
//	f := fetch.New(fetch.Options{})
//	disk, _ := cache.NewDiskCache(config.DefaultCacheDir())
//	images := imagefetch.New(f, disk, nil)
//
//	a := &acquire.Acquirer{
//	    Local:  encoder.New(qrcode.Medium),
//	    API:    remote.NewAPITier("", images),
//	    Scrape: remote.NewScrapeTier("", f, images, nil),
//	}
//	res := <-a.Acquire(ctx, acquire.NewRequest("hello", 256, 256))
//
// [acquire]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/acquire
// [encoder]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/encoder
// [remote]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/remote
// [imagefetch]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/imagefetch
// [fetch]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/fetch
// [cache]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/cache
// [pixel]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/pixel
// [resample]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/resample
// [async]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/async
// [errors]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/observability
// [metrics]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/metrics
// [config]: https://pkg.go.dev/github.com/matzehuels/qrfetch/pkg/config
package pkg
