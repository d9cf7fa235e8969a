package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/staranto/cacheguard/internal/meta"
	"github.com/urfave/cli/v3"
)

const bashCompletionScript = `# bash completion for cacheguard
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_cacheguard()
{
    local cur prev cmd sub
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "kv text archive backup completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    if [[ ${COMP_CWORD} -eq 2 ]]; then
        case "$cmd" in
        kv)      COMPREPLY=( $(compgen -W "list get set rm export exec diff" -- "$cur") ) ;;
        text)    COMPREPLY=( $(compgen -W "show append" -- "$cur") ) ;;
        archive) COMPREPLY=( $(compgen -W "list purge" -- "$cur") ) ;;
        backup)  COMPREPLY=( $(compgen -W "push pull versions" -- "$cur") ) ;;
        completion) COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") ) ;;
        esac
        return 0
    fi

    sub=${COMP_WORDS[2]}
    local sealing="--age -a --pgp -p --sops --timeout"
    local remote="--bucket -b --key -k --profile --region --endpoint"

    case "$cmd $sub" in
    "kv list")       local opts="$sealing --output -o --filter -f --reveal -r --titles -t --color -c" ;;
    "kv diff")       local opts="$sealing --color -c" ;;
    kv\ *)           local opts="$sealing" ;;
    text\ *)         local opts="$sealing --terminator" ;;
    "archive list")  local opts="--titles -t" ;;
    "archive purge") local opts="--hours" ;;
    "backup pull")   local opts="$remote --object-version" ;;
    "backup versions") local opts="$remote --titles -t" ;;
    backup\ *)       local opts="$remote" ;;
    *)               local opts="" ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
        return 0
    fi

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # Otherwise, we're on the FILE positional, complete files
    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -F _cacheguard cacheguard
`

const zshCompletionScript = `#compdef cacheguard

_cacheguard() {
  local -a cmds
  cmds=(
    'kv:sealed key/value cache'
    'text:sealed line-oriented text cache'
    'archive:archived copies of corrupt sealed files'
    'backup:offsite copies of sealed files in S3'
    'completion:generate shell completion script'
  )

  local -a sealing
  sealing=(
  '*'{-a,--age}'[age public key]:key'
  '*'{-p,--pgp}'[PGP fingerprint]:fingerprint'
  '--sops[sops executable]:file:_files'
  '--timeout[deadline for each sops call]:duration'
  )

  local -a remote
  remote=(
  '(-b --bucket)'{-b,--bucket}'[S3 bucket]:bucket'
  '(-k --key)'{-k,--key}'[object key]:key'
  '--profile[AWS profile]:profile'
  '--region[AWS region]:region'
  '--endpoint[S3-compatible endpoint]:url'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'cacheguard commands' cmds
    return
  fi

  if (( CURRENT == 3 )); then
    case $words[2] in
      kv)         _values 'kv command' list get set rm export exec diff ;;
      text)       _values 'text command' show append ;;
      archive)    _values 'archive command' list purge ;;
      backup)     _values 'backup command' push pull versions ;;
      completion) _values 'shell' bash zsh ;;
    esac
    return
  fi

  case "$words[2] $words[3]" in
    "kv list")
      _arguments -C $sealing \
        '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)' \
        '(-f --filter)'{-f,--filter}'[filters to apply]:filters' \
        '(-r --reveal)'{-r,--reveal}'[show values]' \
        '(-t --titles)'{-t,--titles}'[show titles]' \
        '(-c --color)'{-c,--color}'[enable colored text]' \
        '1:file:_files'
      ;;
    kv\ *)
      _arguments -C $sealing '1:file:_files' '*::args'
      ;;
    text\ *)
      _arguments -C $sealing '--terminator[line terminator]:terminator' '1:file:_files' '*::lines'
      ;;
    "archive purge")
      _arguments -C '--hours[age in hours]:hours' '1:file:_files'
      ;;
    archive\ *)
      _arguments -C '(-t --titles)'{-t,--titles}'[show titles]' '1:file:_files'
      ;;
    backup\ *)
      _arguments -C $remote '--object-version[object version]:version' '1:file:_files'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _cacheguard cacheguard
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(stdout(m), bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout(m), zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(stdout(m), zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(stdout(m), bashCompletionScript)
		} else {
			fmt.Fprintln(stderr(m), "usage: cacheguard completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "cacheguard completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
