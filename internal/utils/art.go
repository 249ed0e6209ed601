package utils

const DayflowArt = `
    ___             __ _
   /   \__ _ _   _ / _| | _____      __
  / /\ / _' | | | | |_| |/ _ \ \ /\ / /
 / /_// (_| | |_| |  _| | (_) \ V  V /
/___,' \__,_|\__, |_| |_|\___/ \_/\_/
             |___/`
