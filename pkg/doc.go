// Package pkg provides the core libraries for the picturelab comparison
// pipeline.
//
// # Overview
//
// Picturelab applies competing picture formation algorithms (AgX, TCAM,
// ACES, ...) to a library of test images and publishes the results as a
// static comparison website. The pkg directory is organized into four main
// areas:
//
//  1. [asset], [ingest] - The test image library and its standardization
//  2. [renderer], [comparison], [imgset] - Picture formation and rendering
//  3. [site] - Static website generation, preview and publication
//  4. [cache], [download], [httputil], [oiio], [workspace] - Infrastructure
//
// # Architecture
//
// The typical data flow through picturelab:
//
//	Source image + metadata (.assets-in/)
//	         ↓
//	    [ingest] package (optimize to ACES2065-1 EXR)
//	         ↓
//	    [renderer] package (fetch and assemble OCIO configs)
//	         ↓
//	    [comparison] package (render every asset x renderer x generator)
//	         ↓
//	    [site] package (pages, thumbnails, publish to gh-pages)
//
// Every image operation shells out to oiiotool through the [oiio] package;
// expensive renders and mosaics are memoized through the [cache] package.
//
// # Quick Start
//
//	ws, err := workspace.Find(".")
//	if err != nil {
//	    return err
//	}
//	tool, err := oiio.Find()
//	if err != nil {
//	    return err
//	}
//	session, err := comparison.Generate(ctx, tool, nil, nil, opts)
//
// See the command implementations under internal/cli for complete wiring.
package pkg
