// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the askai command line.

With no arguments askai opens the full-screen chat. The subcommands cover
the non-interactive paths:

	askai ask "question"        one answer on stdout
	askai chat                  line-mode chat with input history
	askai transcribe memo.webm  speech to text
	askai history list|show|delete
	askai config path|show|init

Every command builds an app (config, logger, Gemini client and optional
transcript store), returns its errors to Execute, and Execute prints them
in one place and maps them to exit codes.
*/
package cli
