package cli

var completionScripts = map[string]string{
	"bash": bashCompletionScript,
	"zsh":  zshCompletionScript,
	"fish": fishCompletionScript,
}

const bashCompletionScript = `# bash completion for tomcat-manager
_tomcat_manager_completion() {
  local cur first words
  COMPREPLY=()
  cur="${COMP_WORDS[COMP_CWORD]}"

  if [[ ${COMP_CWORD} -eq 1 ]]; then
    words="$(tomcat-manager __list servers 2>/dev/null)"
    words="$words"$'\n'"mcp"$'\n'"config"$'\n'"completion"$'\n'"--help"$'\n'"--version"$'\n'"--noconfig"
    COMPREPLY=( $(compgen -W "$words" -- "$cur") )
    return 0
  fi

  first="${COMP_WORDS[1]}"
  if [[ "$first" == "completion" ]]; then
    COMPREPLY=( $(compgen -W "bash zsh fish" -- "$cur") )
    return 0
  fi

  if [[ ${COMP_CWORD} -eq 2 ]]; then
    words="$(tomcat-manager __list commands 2>/dev/null)"
    COMPREPLY=( $(compgen -W "$words" -- "$cur") )
    return 0
  fi

  COMPREPLY=( $(compgen -f -- "$cur") )
}
complete -F _tomcat_manager_completion tomcat-manager
`

const zshCompletionScript = `#compdef tomcat-manager
_tomcat_manager_completion() {
  local -a entries commands

  if (( CURRENT == 2 )); then
    entries=(${(f)"$(tomcat-manager __list servers 2>/dev/null)"})
    entries+=(mcp config completion --help --version --noconfig)
    _describe 'tomcat-manager entry' entries
    return
  fi

  if [[ "${words[2]}" == "completion" ]]; then
    _values 'shell' bash zsh fish
    return
  fi

  if (( CURRENT == 3 )); then
    commands=(${(f)"$(tomcat-manager __list commands 2>/dev/null)"})
    _describe 'command' commands
    return
  fi

  _files
}
compdef _tomcat_manager_completion tomcat-manager
`

const fishCompletionScript = `function __tomcat_manager_words
    commandline -opc
end

complete -c tomcat-manager -n 'test (count (__tomcat_manager_words)) -eq 1' -a "mcp config completion --help --version --noconfig (tomcat-manager __list servers 2>/dev/null)"
complete -c tomcat-manager -n 'set -l w (__tomcat_manager_words); test (count $w) -eq 2; and test "$w[2]" = completion' -a "bash zsh fish"
complete -c tomcat-manager -n 'set -l w (__tomcat_manager_words); test (count $w) -eq 2; and test "$w[2]" != completion' -a "(tomcat-manager __list commands 2>/dev/null)"
`
